package resp

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a single server command: a name followed by its arguments,
// sent on the wire as an array of bulk strings.
type Command struct {
	args [][]byte
}

// NewCommand builds a Command from a name and arguments. Arguments are
// converted to their wire form: strings and byte slices pass through,
// numbers are formatted in decimal, booleans become "1"/"0".
func NewCommand(name string, args ...any) Command {
	cmd := Command{args: make([][]byte, 0, len(args)+1)}
	cmd.args = append(cmd.args, []byte(name))
	for _, arg := range args {
		cmd.args = append(cmd.args, formatArg(arg))
	}
	return cmd
}

// Name returns the command name in upper case.
func (c Command) Name() string {
	if len(c.args) == 0 {
		return ""
	}
	return strings.ToUpper(string(c.args[0]))
}

// Args returns the wire arguments, name included.
func (c Command) Args() [][]byte {
	return c.args
}

func formatArg(arg any) []byte {
	switch v := arg.(type) {
	case string:
		return []byte(v)
	case []byte:
		return v
	case int:
		return strconv.AppendInt(nil, int64(v), 10)
	case int64:
		return strconv.AppendInt(nil, v, 10)
	case uint64:
		return strconv.AppendUint(nil, v, 10)
	case float64:
		return strconv.AppendFloat(nil, v, 'f', -1, 64)
	case bool:
		if v {
			return []byte("1")
		}
		return []byte("0")
	case fmt.Stringer:
		return []byte(v.String())
	default:
		return []byte(fmt.Sprint(v))
	}
}
