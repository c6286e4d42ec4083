package config

// CategoryWeights orders command categories in help output; lower comes first.
var CategoryWeights = map[string]int{
	"🕯️ Information": 0,
	"🧹 Cleanup":      45,
}

// CategoryWeight returns the weight of category, placing unknown ones last.
func CategoryWeight(category string) int {
	if w, ok := CategoryWeights[category]; ok {
		return w
	}
	return 1000
}
