package tree

// Restore returns a Tree rebuilt around a stored root node. It is meant
// for model decoders; the returned tree predicts and scores variable
// importance but carries no fitting configuration.
func Restore(root *Node, nFeatures int) Tree {
	return Tree{
		Root:        root,
		MinNodeSize: 1,
		MaxDepth:    -1,
		MTry:        -1,
		nFeatures:   nFeatures,
	}
}
