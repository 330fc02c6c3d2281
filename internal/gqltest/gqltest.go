// Package gqltest runs table driven GraphQL queries against a schema.
package gqltest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"testing"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/errors"
	"github.com/nsf/jsondiff"
)

// Test is a GraphQL test case to be used with RunTest(s).
type Test struct {
	Name           string
	Context        context.Context
	Schema         *graphql.Schema
	Query          string
	OperationName  string
	Variables      map[string]interface{}
	ExpectedResult string
	ExpectedErrors []*errors.QueryError
}

// RunTests runs the given GraphQL test cases as subtests.
func RunTests(t *testing.T, tests []*Test) {
	t.Helper()
	if len(tests) == 1 {
		RunTest(t, tests[0])
		return
	}

	for i, test := range tests {
		name := test.Name
		if name == "" {
			name = strconv.Itoa(i + 1)
		}
		t.Run(name, func(t *testing.T) {
			t.Helper()
			RunTest(t, test)
		})
	}
}

// RunTest runs a single GraphQL test case. Errors are compared by message
// and path, plus extensions when the expected error carries any.
func RunTest(t *testing.T, test *Test) {
	t.Helper()
	ctx := test.Context
	if ctx == nil {
		ctx = context.Background()
	}
	result := test.Schema.Exec(ctx, test.Query, test.OperationName, test.Variables)

	checkErrors(t, test.ExpectedErrors, result.Errors)

	if test.ExpectedResult == "" {
		if result.Data != nil && string(result.Data) != "null" {
			t.Fatalf("got: %s, want: null", result.Data)
		}
		return
	}

	opts := jsondiff.Options{
		Added:   jsondiff.Tag{Begin: "+++", End: "+++"},
		Removed: jsondiff.Tag{Begin: "---", End: "---"},
		Changed: jsondiff.Tag{Begin: "|||", End: "|||"},
		Indent:  "    ",
	}
	diff, output := jsondiff.Compare([]byte(test.ExpectedResult), result.Data, &opts)
	if diff != jsondiff.FullMatch {
		t.Log("Did not get expected result:\n", output)
		t.Log("Got:", string(result.Data))
		t.Fail()
	}
}

// Errorf builds an expected error for the given result path.
func Errorf(path []interface{}, format string, a ...interface{}) *errors.QueryError {
	err := errors.Errorf(format, a...)
	err.Path = path
	return err
}

func checkErrors(t *testing.T, want, got []*errors.QueryError) {
	t.Helper()
	sortErrors(want)
	sortErrors(got)

	ok := len(want) == len(got)
	for i := 0; ok && i < len(want); i++ {
		ok = sameError(want[i], got[i])
	}
	if !ok {
		t.Log("unexpected error:")
		t.Log("  Got: \n", formatErrors(got))
		t.Log("  Want: \n", formatErrors(want))
		t.Fatal()
	}
}

func sameError(want, got *errors.QueryError) bool {
	if want == nil || got == nil {
		return want == got
	}
	if want.Message != got.Message || fmt.Sprint(want.Path) != fmt.Sprint(got.Path) {
		return false
	}
	if want.Extensions != nil && !reflect.DeepEqual(want.Extensions, got.Extensions) {
		return false
	}
	return true
}

func formatErrors(errs []*errors.QueryError) string {
	var errorStr string
	for _, err := range errs {
		if err == nil {
			errorStr = errorStr + "(nil)\n"
		} else {
			errorStr = errorStr + formatError(*err)
		}
	}
	return errorStr
}

func formatError(err errors.QueryError) string {
	return fmt.Sprintf(
		`%s
Path: %v
Resolver: %v
Extensions: %+v
`,
		err.Message,
		err.Path,
		err.ResolverError,
		err.Extensions)
}

func sortErrors(errors []*errors.QueryError) {
	if len(errors) <= 1 {
		return
	}
	sort.Slice(errors, func(i, j int) bool {
		return fmt.Sprintf("%v", errors[i].Path) < fmt.Sprintf("%v", errors[j].Path)
	})
}
