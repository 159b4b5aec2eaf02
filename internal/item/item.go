package item

// Stack is a counted pile of one item kind in a single slot. A zero Stack
// means "empty slot". Tag carries item metadata (card account info,
// delivery sender) as flat string pairs.
type Stack struct {
	Item  string
	Count int
	Tag   map[string]string
}

func (s Stack) Empty() bool { return s.Item == "" || s.Count <= 0 }

// Same reports whether two stacks hold the same item with the same tags,
// ignoring counts.
func (s Stack) Same(o Stack) bool {
	if s.Item != o.Item || len(s.Tag) != len(o.Tag) {
		return false
	}
	for k, v := range s.Tag {
		if o.Tag[k] != v {
			return false
		}
	}
	return true
}

// WithTag returns a copy of the stack with one tag pair set.
func (s Stack) WithTag(key, value string) Stack {
	tag := make(map[string]string, len(s.Tag)+1)
	for k, v := range s.Tag {
		tag[k] = v
	}
	tag[key] = value
	s.Tag = tag
	return s
}

func (s Stack) TagValue(key string) string {
	if s.Tag == nil {
		return ""
	}
	return s.Tag[key]
}
