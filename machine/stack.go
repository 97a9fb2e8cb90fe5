package machine

const (
	STACK_LIMIT = 16 // Maximum stack depth
)

// Stack is the call stack of return addresses.
type Stack struct {
	Data    [STACK_LIMIT]uint16
	Pointer int // Number of entries in use.
}

// Push appends a value. It returns false, and leaves the stack
// unchanged, when the stack is full.
func (s *Stack) Push(value uint16) (ok bool) {
	if s.Full() {
		return
	}

	s.Data[s.Pointer] = value
	s.Pointer++
	return true
}

func (s *Stack) Pop() (value uint16, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Pointer--
	}
	return
}

func (s *Stack) Empty() bool {
	return s.Pointer == 0
}

func (s *Stack) Full() bool {
	return s.Pointer == STACK_LIMIT
}

func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[s.Pointer-1], true
}

func (s *Stack) Reset() {
	clear(s.Data[:])
	s.Pointer = 0
}
