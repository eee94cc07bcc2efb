package exprerr

// Action names the codec direction an error was raised in.
type Action int8

const (
	Unknown Action = iota
	Encode
	Decode
	Resolve
)

func (a Action) String() string {
	actions := map[Action]string{
		Unknown: "unknown",
		Encode:  "encode",
		Decode:  "decode",
		Resolve: "resolve",
	}

	if str, ok := actions[a]; ok {
		return str
	}
	return "unknown"
}
