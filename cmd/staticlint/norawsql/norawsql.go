// Package norawsql defines an analyzer that reports SQL queries assembled
// from strings at run time instead of being passed with placeholders.
package norawsql

import (
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer reports calls of Query, QueryRow and Exec (and their Context
// variants) whose query argument is built by string concatenation or
// fmt.Sprintf. Concatenating constants is allowed.
var Analyzer = &analysis.Analyzer{
	Name: "norawsql",
	Doc:  "prohibits SQL queries built from non-constant strings",
	Run:  run,
}

var queryMethods = map[string]bool{
	"Query":           true,
	"QueryContext":    true,
	"QueryRow":        true,
	"QueryRowContext": true,
	"Exec":            true,
	"ExecContext":     true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || !queryMethods[sel.Sel.Name] {
				return true
			}

			queryIndex := 0
			if strings.HasSuffix(sel.Sel.Name, "Context") {
				queryIndex = 1
			}
			if len(call.Args) <= queryIndex {
				return true
			}

			query := ast.Unparen(call.Args[queryIndex])
			if tv, ok := pass.TypesInfo.Types[query]; ok && tv.Value != nil {
				return true
			}

			switch expr := query.(type) {
			case *ast.BinaryExpr:
				if expr.Op == token.ADD {
					pass.Reportf(query.Pos(), "SQL query built by string concatenation; use placeholders")
				}
			case *ast.CallExpr:
				if isSprintf(pass, expr) {
					pass.Reportf(query.Pos(), "SQL query built with fmt.Sprintf; use placeholders")
				}
			}

			return true
		})
	}

	return nil, nil
}

func isSprintf(pass *analysis.Pass, call *ast.CallExpr) bool {
	callee := typeutil.StaticCallee(pass.TypesInfo, call)

	return callee != nil && callee.Pkg() != nil && callee.Pkg().Path() == "fmt" && callee.Name() == "Sprintf"
}
