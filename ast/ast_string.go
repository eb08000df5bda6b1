package ast

import (
	"fmt"
	"strings"

	"github.com/pontaoski/taipan/token"
)

func join(nodes []Node, sep string) string {
	var parts []string
	for _, n := range nodes {
		parts = append(parts, fmt.Sprint(n))
	}
	return strings.Join(parts, sep)
}

func tab(s string) string {
	return strings.ReplaceAll(s, "\n", "\n\t")
}

func (m *Module) String() string {
	return join(m.Tops, "\n")
}

func (n *Int) String() string     { return fmt.Sprint(n.Value) }
func (n *Short) String() string   { return fmt.Sprintf("%ds", n.Value) }
func (n *CharStr) String() string { return fmt.Sprintf("'%s'c", token.Escape(string(n.Value))) }
func (n *CharNum) String() string { return fmt.Sprintf("%dc", n.Value) }
func (n *Str) String() string     { return `"` + token.Escape(n.Value) + `"` }
func (n *Constant) String() string {
	return n.Name
}

func (n *Template) String() string {
	var b strings.Builder
	if n.Formatter != nil {
		b.WriteString(fmt.Sprint(n.Formatter))
	}
	b.WriteByte('`')
	for i, s := range n.Strings {
		b.WriteString(token.Escape(s))
		if i < len(n.Values) {
			fmt.Fprintf(&b, "{%s}", n.Values[i])
		}
	}
	b.WriteByte('`')
	return b.String()
}

func (n *ReferTo) String() string { return n.Name.Operand }

func (n *BinaryOperation) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Operation, n.Right)
}

func (n *UnaryOperation) String() string {
	return fmt.Sprintf("(%s%s)", n.Operation, n.Left)
}

func (n *Call) String() string {
	return fmt.Sprintf("%s(%s)", n.Func, join(n.Args, ", "))
}

func (n *Dot) String() string {
	return fmt.Sprintf("%s.%s", n.Origin, n.Access.Operand)
}

func (n *Subscript) String() string {
	return fmt.Sprintf("%s[%s]", n.Origin, join(n.Subscripts, ", "))
}

func (n *Cast) String() string {
	return fmt.Sprintf("$(%s, %s)", n.Type, n.Value)
}

func (n *StrCast) String() string {
	return fmt.Sprintf("$(%s, %s)", n.Length, n.Pointer)
}

func (n *ExprStatement) String() string { return fmt.Sprint(n.Value) }

func (n *TypedVariable) String() string {
	return fmt.Sprintf("%s:%s", n.Name.Operand, n.Type)
}

func (n *Assignment) String() string {
	return fmt.Sprintf("%s = %s", n.Var, n.Value)
}

func (n *Declaration) String() string {
	if n.Times == nil {
		return n.Var.String()
	}
	return fmt.Sprintf("%s[%s]", n.Var, n.Times)
}

func (n *Set) String() string {
	return fmt.Sprintf("set %s = %s", n.Name.Operand, n.Value)
}

func (n *VariableSave) String() string {
	return fmt.Sprintf("%s = %s", n.Space.Operand, n.Value)
}

func (n *Save) String() string {
	return fmt.Sprintf("%s <- %s", n.Space, n.Value)
}

func (n *ReAssignment) String() string {
	return fmt.Sprintf("%s = %s", n.Name.Operand, n.Value)
}

func (n *Code) String() string {
	if len(n.Statements) == 0 {
		return "{}"
	}
	return fmt.Sprintf("{%s\n}", tab("\n"+join(n.Statements, "\n")))
}

func (n *If) String() string {
	switch e := n.Else.(type) {
	case nil:
		return fmt.Sprintf("if %s %s", n.Condition, n.Code)
	case *If:
		return fmt.Sprintf("if %s %s el%s", n.Condition, n.Code, e)
	default:
		return fmt.Sprintf("if %s %s else %s", n.Condition, n.Code, e)
	}
}

func (n *While) String() string {
	return fmt.Sprintf("while %s %s", n.Condition, n.Code)
}

func (n *Case) String() string {
	return fmt.Sprintf("%s %s", n.Name.Operand, n.Body)
}

func (n *Match) String() string {
	var cases []string
	for _, c := range n.Cases {
		cases = append(cases, c.String())
	}
	if n.Default != nil {
		cases = append(cases, "default "+n.Default.String())
	}
	return fmt.Sprintf("match %s as %s {%s\n}", n.Value, n.MatchAs.Operand, tab("\n"+strings.Join(cases, "\n")))
}

func (n *Return) String() string {
	if n.Value == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", n.Value)
}

func (n *Assert) String() string {
	return fmt.Sprintf("assert %s, %s", n.Value, n.Explanation)
}

func (n *Fun) String() string {
	var args []string
	for _, a := range n.Args {
		args = append(args, a.String())
	}
	ret := ""
	if n.ReturnType != nil {
		ret = fmt.Sprintf(" -> %s", n.ReturnType)
	}
	return fmt.Sprintf("fun %s(%s)%s %s", n.Name.Operand, strings.Join(args, ", "), ret, n.Code)
}

func (n *StaticVariable) String() string {
	return fmt.Sprintf("%s = %s", n.Var, n.Value)
}

func (n *Struct) String() string {
	var lines []string
	for _, v := range n.Variables {
		lines = append(lines, v.String())
	}
	for _, v := range n.StaticVariables {
		lines = append(lines, v.String())
	}
	for _, f := range n.Funs {
		lines = append(lines, f.String())
	}
	return fmt.Sprintf("struct %s {%s\n}", n.Name.Operand, tab("\n"+strings.Join(lines, "\n")))
}

func (n *Enum) String() string {
	var lines []string
	for _, i := range n.Items {
		lines = append(lines, i.Operand)
	}
	for _, i := range n.TypedItems {
		lines = append(lines, i.String())
	}
	for _, f := range n.Funs {
		lines = append(lines, f.String())
	}
	return fmt.Sprintf("enum %s {%s\n}", n.Name.Operand, tab("\n"+strings.Join(lines, "\n")))
}

func (n *Mix) String() string {
	return fmt.Sprintf("mix %s {%s}", n.Name.Operand, join(n.Funs, " "))
}

func (n *Const) String() string {
	return fmt.Sprintf("const %s %d", n.Name.Operand, n.Value)
}

func (n *Var) String() string {
	return fmt.Sprintf("var %s %s", n.Name.Operand, n.Type)
}

func (n *Memo) String() string {
	return fmt.Sprintf("memo %s %d", n.Name.Operand, n.Size)
}

func (n *TypeDefinition) String() string {
	return fmt.Sprintf("typedef %s %s", n.Name.Operand, n.Type)
}

func (n *Import) String() string {
	return fmt.Sprintf("import %s", n.Path)
}

func (n *FromImport) String() string {
	var names []string
	for _, name := range n.ImportedNames {
		names = append(names, name.Operand)
	}
	return fmt.Sprintf("from %s import %s", n.Path, strings.Join(names, ", "))
}

func (n *Use) String() string {
	ret := ""
	if n.ReturnType != nil {
		ret = fmt.Sprintf(" -> %s", n.ReturnType)
	}
	as := ""
	if n.AsName.Operand != n.Name.Operand {
		as = " as " + n.AsName.Operand
	}
	return fmt.Sprintf("use %s(%s)%s%s", n.Name.Operand, join(n.ArgTypes, ", "), ret, as)
}

func (n *TypeReference) String() string { return n.Ref.Operand }
func (n *TypePointer) String() string   { return fmt.Sprintf("*%s", n.Pointed) }

func (n *TypeArray) String() string {
	if n.Size == 0 {
		return fmt.Sprintf("[]%s", n.Elem)
	}
	return fmt.Sprintf("[%d]%s", n.Size, n.Elem)
}

func (n *TypeFun) String() string {
	ret := "void"
	if n.ReturnType != nil {
		ret = fmt.Sprint(n.ReturnType)
	}
	return fmt.Sprintf("(%s) -> %s", join(n.Args, ", "), ret)
}
