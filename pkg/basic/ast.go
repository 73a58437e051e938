package basic

// Node is any parsed syntax node. Nodes are immutable trees with no
// back-references.
type Node interface{}

// Statement is one executable statement node.
type Statement interface {
	Node
	stmtNode()
}

// Expression is one evaluable expression node.
type Expression interface {
	Node
	exprNode()
}

// ProgramLine wraps a statement with the line number it is stored under.
type ProgramLine struct {
	Number int
	Stmt   Statement
}

// EmptyStmt is a line with no statement body. Re-typing a bare line number
// parses to ProgramLine{n, EmptyStmt}, which deletes the stored line.
type EmptyStmt struct{}

// PrintStmt prints the expressions left to right. Seps[i] is the separator
// following Exprs[i] ("" when the last expression has no trailing separator).
// A ";" inserts nothing, a "," inserts a fixed-width gap; a trailing ";"
// suppresses the final newline.
type PrintStmt struct {
	Exprs []Expression
	Seps  []string
}

// LetStmt assigns the value of an expression to a variable.
type LetStmt struct {
	Name  string
	Value Expression
}

// InputStmt suspends for one line of user input and binds it to a variable.
type InputStmt struct {
	Prompt    string
	HasPrompt bool
	Name      string
}

// IfStmt executes Then only when the condition evaluates truthy. No ELSE.
type IfStmt struct {
	Cond Expression
	Then Statement
}

// GotoStmt redirects the RUN cursor to the target line.
type GotoStmt struct {
	Target int
}

// ForStmt binds the loop variable to Start and pushes a loop frame.
type ForStmt struct {
	Name  string
	Start Expression
	End   Expression
	Step  Expression
}

// NextStmt advances the innermost loop frame. Name is "" for a bare NEXT.
type NextStmt struct {
	Name string
}

// RemStmt is a comment; a no-op.
type RemStmt struct{}

// EndStmt stops the current RUN after this line.
type EndStmt struct{}

// ListStmt prints stored lines within an optional inclusive range.
type ListStmt struct {
	Start *int
	End   *int
}

// RunStmt executes the stored program from its first line.
type RunStmt struct{}

// NewStmt clears the program store, variables and loop stack.
type NewStmt struct{}

// HomeStmt clears the screen.
type HomeStmt struct{}

// SaveStmt persists the program store under a name.
type SaveStmt struct {
	Name string
}

// LoadStmt replaces the program store with a previously saved program.
type LoadStmt struct {
	Name string
}

func (*EmptyStmt) stmtNode() {}
func (*PrintStmt) stmtNode() {}
func (*LetStmt) stmtNode()   {}
func (*InputStmt) stmtNode() {}
func (*IfStmt) stmtNode()    {}
func (*GotoStmt) stmtNode()  {}
func (*ForStmt) stmtNode()   {}
func (*NextStmt) stmtNode()  {}
func (*RemStmt) stmtNode()   {}
func (*EndStmt) stmtNode()   {}
func (*ListStmt) stmtNode()  {}
func (*RunStmt) stmtNode()   {}
func (*NewStmt) stmtNode()   {}
func (*HomeStmt) stmtNode()  {}
func (*SaveStmt) stmtNode()  {}
func (*LoadStmt) stmtNode()  {}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

// StringLit is a string literal.
type StringLit struct {
	Value string
}

// VarRef reads a variable. Reading an unset variable yields 0 or "" by
// name suffix instead of erroring.
type VarRef struct {
	Name string
}

// BinaryExpr applies a binary operator. All binary levels are
// left-associative.
type BinaryExpr struct {
	Op    string
	Left  Expression
	Right Expression
}

// UnaryExpr applies unary minus, the only supported unary operator.
type UnaryExpr struct {
	Op      string
	Operand Expression
}

func (*NumberLit) exprNode()  {}
func (*StringLit) exprNode()  {}
func (*VarRef) exprNode()     {}
func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
