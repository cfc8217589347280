package model

// Available is the fixed set of supported whisper model sizes.
var Available = []string{
	"tiny", "base", "small", "medium",
	"large-v1", "large-v2", "large-v3", "distil-large-v3",
}

// ComputeTypes is the fixed set of supported precision/quantization
// modes.
var ComputeTypes = []string{
	"int8", "int8_float16", "int16", "float16", "float32",
}

func ValidModel(id string) bool {
	for _, m := range Available {
		if m == id {
			return true
		}
	}
	return false
}

func ValidComputeType(ct string) bool {
	for _, c := range ComputeTypes {
		if c == ct {
			return true
		}
	}
	return false
}
