package gen

import "strings"

// lineWidth is the soft limit after which lists continue on the next line
const lineWidth = 80

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}
func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

// writeList writes head followed by space-separated items, wrapping with "$\n    " once a
// line would exceed lineWidth.
func writeList(sb *strings.Builder, head string, items []string) {
	sb.WriteString(head)
	col := len(head)
	for _, item := range items {
		if col > 4 && col+1+len(item) > lineWidth {
			sb.WriteString(" $\n    ")
			col = 4
		} else {
			sb.WriteByte(' ')
			col++
		}
		sb.WriteString(item)
		col += len(item)
	}
	sb.WriteByte('\n')
}

// variable is a name bound to a list of values, rendered space-separated
type variable struct {
	name  string
	value []string
}

func comment(sb *strings.Builder, text string) {
	writeln(sb, "# ", text)
}

func assign(sb *strings.Builder, name, value string) {
	writeln(sb, name, " = ", value)
}

func assignList(sb *strings.Builder, name string, value []string, indent string) {
	writeList(sb, indent+name+" =", value)
}

func rule(sb *strings.Builder, name, command string, vars ...variable) {
	writeln(sb, "rule ", name)
	writeln(sb, "  command = ", command)
	for _, v := range vars {
		assignList(sb, v.name, v.value, "  ")
	}
}

// build writes a build statement; implicit inputs follow a "|" separator
func build(sb *strings.Builder, output, ruleName string, inputs, implicit []string, vars ...variable) {
	items := inputs
	if len(implicit) > 0 {
		items = make([]string, 0, len(inputs)+len(implicit)+1)
		items = append(items, inputs...)
		items = append(items, "|")
		items = append(items, implicit...)
	}
	writeList(sb, "build "+output+": "+ruleName, items)
	for _, v := range vars {
		assignList(sb, v.name, v.value, "  ")
	}
}

func defaultTarget(sb *strings.Builder, name string) {
	writeln(sb, "default ", name)
}
