package dsl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[.,:()\[\]{}]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Chain is a parsed query: an optional "g." receiver followed by calls
// joined with dots.
type Chain struct {
	Receiver bool    `parser:"( @'g' '.' )?"`
	Calls    []*Call `parser:"@@ ( '.' @@ )*"`
}

// Call is one step, name(args...).
type Call struct {
	Pos  lexer.Position
	Name string   `parser:"@Ident '('"`
	Args []*Value `parser:"( @@ ( ',' @@ )* )? ')'"`
}

// Value is a literal argument.
type Value struct {
	String *string  `parser:"  @String"`
	Number *float64 `parser:"| @Number"`
	True   bool     `parser:"| @'true'"`
	False  bool     `parser:"| @'false'"`
	Null   bool     `parser:"| @'null'"`
	List   *List    `parser:"| @@"`
	Object *Object  `parser:"| @@"`
}

type List struct {
	Open  bool     `parser:"@'['"`
	Items []*Value `parser:"( @@ ( ',' @@ )* ','? )? ']'"`
}

type Object struct {
	Open    bool     `parser:"@'{'"`
	Entries []*Entry `parser:"( @@ ( ',' @@ )* ','? )? '}'"`
}

type Entry struct {
	Key   string `parser:"( @Ident | @String ) ':'"`
	Value *Value `parser:"@@"`
}

var parser = participle.MustBuild[Chain](
	participle.Lexer(queryLexer),
	participle.Elide("whitespace"),
)
