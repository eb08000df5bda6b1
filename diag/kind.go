package diag

// Kind disambiguates message templates. It is not a stable error code.
type Kind int

const (
	ImportName Kind = iota
	ImportCycle
	ImportFailed
	MainReturn
	MainArgs
	FunReturn
	InitMagic
	InitMagicRet
	CallMix
	Callable
	CallArgs
	CallArg
	Mix
	Assignment
	Refer
	SizedDeclaration
	DeclarationTimes
	SavePtr
	Save
	SizedVSave
	VSavePtr
	VSave
	ReassignmentName
	Reassignment
	If
	IfBranch
	While
	StructStatics
	StructSized
	EnumSized
	BoundFunArgs
	BoundFunArg
	BoundStrMagic
	BoundStrRet
	Return
	AssertValue
	AssertExplanation
	DotModule
	DotStructKind
	DotEnumKind
	DotStruct
	DotEnum
	Dot
	StrSubscriptLen
	StrSubscript
	ArraySubscriptLen
	ArraySubscript
	SubscriptMagic
	StructSubLen
	StructSubscript
	Subscript
	TemplateFun
	TemplateArgs
	TemplateArg0
	TemplateArg1
	TemplateArg2
	TemplateDefault
	TemplateValue
	StrCastLen
	StrCastPtr
	Cast
	TypeReference
	Match
	MatchCase
	BinOp
	UnaryOp
	Intrinsic
	IntrinsicSignature
	Builtin
)

var kindNames = [...]string{
	ImportName:         "import_name",
	ImportCycle:        "import_cycle",
	ImportFailed:       "import_failed",
	MainReturn:         "main_return",
	MainArgs:           "main_args",
	FunReturn:          "fun_return",
	InitMagic:          "init_magic",
	InitMagicRet:       "init_magic_ret",
	CallMix:            "call_mix",
	Callable:           "callable",
	CallArgs:           "call_args",
	CallArg:            "call_arg",
	Mix:                "mix",
	Assignment:         "assignment",
	Refer:              "refer",
	SizedDeclaration:   "sized_declaration",
	DeclarationTimes:   "declaration_times",
	SavePtr:            "save_ptr",
	Save:               "save",
	SizedVSave:         "sized_vsave",
	VSavePtr:           "vsave_ptr",
	VSave:              "vsave",
	ReassignmentName:   "reassignment_name",
	Reassignment:       "reassignment",
	If:                 "if",
	IfBranch:           "if_branch",
	While:              "while",
	StructStatics:      "struct_statics",
	StructSized:        "struct_sized",
	EnumSized:          "enum_sized",
	BoundFunArgs:       "bound_fun_args",
	BoundFunArg:        "bound_fun_arg",
	BoundStrMagic:      "bound_str_magic",
	BoundStrRet:        "bound_str_ret",
	Return:             "return",
	AssertValue:        "assert_value",
	AssertExplanation:  "assert_explanation",
	DotModule:          "dot_module",
	DotStructKind:      "dot_struct_kind",
	DotEnumKind:        "dot_enum_kind",
	DotStruct:          "dot_struct",
	DotEnum:            "dot_enum",
	Dot:                "dot",
	StrSubscriptLen:    "str_subscript_len",
	StrSubscript:       "str_subscript",
	ArraySubscriptLen:  "array_subscript_len",
	ArraySubscript:     "array_subscript",
	SubscriptMagic:     "subscript_magic",
	StructSubLen:       "struct_sub_len",
	StructSubscript:    "struct_subscript",
	Subscript:          "subscript",
	TemplateFun:        "template_fun",
	TemplateArgs:       "template_args",
	TemplateArg0:       "template_arg0",
	TemplateArg1:       "template_arg1",
	TemplateArg2:       "template_arg2",
	TemplateDefault:    "template_default",
	TemplateValue:      "template_value",
	StrCastLen:         "str_cast_len",
	StrCastPtr:         "str_cast_ptr",
	Cast:               "cast",
	TypeReference:      "type_reference",
	Match:              "match",
	MatchCase:          "match_case",
	BinOp:              "bin_op",
	UnaryOp:            "unary_op",
	Intrinsic:          "intrinsic",
	IntrinsicSignature: "intrinsic_signature",
	Builtin:            "builtin",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}
