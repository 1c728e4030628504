// Package generator produces course syllabi and topic content through an
// LLM and persists the results through the job state machine.
package generator

// Structure fixes the module and topic counts for a course depth.
// Depth is 1 (casual overview) through 5 (graduate-level rigor).
type Structure struct {
	Modules         int
	TopicsPerModule int
}

var depthStructures = map[int]Structure{
	1: {Modules: 3, TopicsPerModule: 3},
	2: {Modules: 3, TopicsPerModule: 4},
	3: {Modules: 4, TopicsPerModule: 5},
	4: {Modules: 4, TopicsPerModule: 6},
	5: {Modules: 5, TopicsPerModule: 8},
}

var depthDescriptions = map[int]string{
	1: "a casual, curiosity-driven overview for someone with no background, favoring intuition and everyday examples over formalism",
	2: "an introductory treatment for a motivated beginner, establishing core vocabulary and simple applications",
	3: "a solid working knowledge course for a practitioner, balancing concepts with hands-on depth",
	4: "an advanced course for an experienced learner, covering edge cases, trade-offs, and underlying theory",
	5: "a rigorous, graduate-level deep dive assuming strong prior knowledge, emphasizing formal foundations and open problems",
}

// StructureForDepth returns the module and topic counts for a depth.
// The second return is false when the depth is out of range.
func StructureForDepth(depth int) (Structure, bool) {
	s, ok := depthStructures[depth]
	return s, ok
}

// DepthDescription returns the prose description of a depth used in
// prompts. Empty for out-of-range depths.
func DepthDescription(depth int) string {
	return depthDescriptions[depth]
}
