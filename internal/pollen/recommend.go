package pollen

// CombineRecommendations flattens the tree, grass and weed recommendations,
// keeping the first occurrence of each string.
func CombineRecommendations(e Extracted) []string {
	set := newOrderedSet()
	set.add(e.TreeRecommendations...)
	set.add(e.GrassRecommendations...)
	set.add(e.WeedRecommendations...)
	return set.items
}
