package structural

// RelationshipRichness is the share of property declarations among all
// relationships, as a percentage. It is 0 when there are no relationships.
func RelationshipRichness(objectProps, datatypeProps, subclassEdges int) float64 {
	props := objectProps + datatypeProps
	total := props + subclassEdges
	if total == 0 {
		return 0
	}
	return float64(props) / float64(total) * 100
}

// InheritanceRichness is the mean number of direct subclasses per class
// scaled by 100. It is not bounded by 100.
func InheritanceRichness(subclassSum, classes int) float64 {
	if classes == 0 {
		return 0
	}
	return float64(subclassSum) / float64(classes) * 100
}
