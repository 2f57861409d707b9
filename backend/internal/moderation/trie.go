package moderation

// trieNode is one byte step of a term.
type trieNode struct {
	children map[byte]*trieNode
	term     string // non-empty if a term ends here
}

// trie is a prefix tree over normalised terms.
type trie struct {
	root *trieNode
}

func newTrie(terms []string) *trie {
	t := &trie{root: &trieNode{children: make(map[byte]*trieNode)}}
	for _, term := range terms {
		t.insert(term)
	}
	return t
}

func (t *trie) insert(term string) {
	if term == "" {
		return
	}
	node := t.root
	for i := 0; i < len(term); i++ {
		c := term[i]
		if node.children[c] == nil {
			node.children[c] = &trieNode{children: make(map[byte]*trieNode)}
		}
		node = node.children[c]
	}
	node.term = term
}

func (t *trie) empty() bool {
	return len(t.root.children) == 0
}

// matchAt returns the lengths of every term starting at pos, shortest first.
func (t *trie) matchAt(text string, pos int) []int {
	node := t.root
	var lens []int
	for i := pos; i < len(text); i++ {
		next := node.children[text[i]]
		if next == nil {
			break
		}
		node = next
		if node.term != "" {
			lens = append(lens, i-pos+1)
		}
	}
	return lens
}

// find returns the first term that occurs in text as a whole word.
func (t *trie) find(text string) (string, bool) {
	if t.empty() {
		return "", false
	}
	for pos := 0; pos < len(text); pos++ {
		if !wordStart(text, pos) {
			continue
		}
		for _, n := range t.matchAt(text, pos) {
			if wordEnd(text, pos+n) {
				return text[pos : pos+n], true
			}
		}
	}
	return "", false
}
