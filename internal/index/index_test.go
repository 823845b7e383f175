package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/stub"
	"github.com/orizon-lang/declview/internal/syntax"
)

const sample = `package demo

import memo.Memo

@Memo(size = 2)
func <T> List<T>.second(fallback: T): T = this[1]

class Box<out T>(val value: T) {
	func get(): T { return value }
}
`

func TestBuild(t *testing.T) {
	f := decl.ParseFile("demo.oriz", sample, nil)
	require.Empty(t, f.ParseErrors())

	s := Build(f)
	assert.Equal(t, "demo.oriz", s.Path)
	assert.Equal(t, "demo", s.PackageName)
	require.Len(t, s.Imports, 1)
	assert.Equal(t, "memo.Memo", s.Imports[0].Path)

	decls := s.Children()
	require.Len(t, decls, 2)

	fn := decls[0].(*stub.Function)
	assert.Equal(t, "second", fn.Name)
	assert.True(t, fn.IsExtension)
	assert.True(t, fn.HasTypeParameterListBeforeName)
	assert.False(t, fn.HasBlockBody)
	assert.True(t, fn.HasBody)

	ann := stub.ChildOfKind(stub.ChildOfKind(fn, syntax.KindModifierList), syntax.KindAnnotation).(*stub.Annotation)
	assert.Equal(t, "Memo", ann.ShortName)
	assert.Equal(t, "size = 2", ann.Arguments)

	refs := stub.ChildrenOfKind(fn, syntax.KindTypeReference)
	require.Len(t, refs, 2)
	assert.Equal(t, "List<T>", refs[0].(*stub.TypeReference).Text)
	assert.Equal(t, "T", refs[1].(*stub.TypeReference).Text)
	// type arguments nest under their reference
	require.Len(t, refs[0].Children(), 1)

	box := decls[1].(*stub.Class)
	assert.Equal(t, "Box", box.Name)
	tp := stub.ChildOfKind(stub.ChildOfKind(box, syntax.KindTypeParameterList), syntax.KindTypeParameter).(*stub.TypeParameter)
	assert.Equal(t, "out", tp.Variance)
	param := stub.ChildOfKind(stub.ChildOfKind(box, syntax.KindValueParameterList), syntax.KindValueParameter).(*stub.ValueParameter)
	assert.Equal(t, "val", param.Binding)

	body := stub.ChildOfKind(box, syntax.KindClassBody)
	require.NotNil(t, body)
	get := body.Children()[0].(*stub.Function)
	assert.True(t, get.HasBlockBody)
	assert.False(t, get.IsLocal)

	assert.Len(t, stub.Preorder(s), len(stub.StubbedNodes(f.Root())))
}

func TestIndex_GetOrBuild(t *testing.T) {
	ix := New(nil)

	s1, built := ix.GetOrBuild("a.oriz", "func a()")
	assert.True(t, built)
	s2, built := ix.GetOrBuild("a.oriz", "func a()")
	assert.False(t, built)
	assert.Same(t, s1, s2)

	_, ok := ix.Lookup("a.oriz", "func a(x: Int)")
	assert.False(t, ok)

	s3, built := ix.GetOrBuild("a.oriz", "func a(x: Int)")
	assert.True(t, built)
	assert.NotSame(t, s1, s3)
	assert.Equal(t, 1, ix.Len())

	ix.Invalidate("a.oriz")
	assert.Zero(t, ix.Len())
}

func TestIndex_Concurrent(t *testing.T) {
	ix := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("f%d.oriz", i%4)
			s, _ := ix.GetOrBuild(path, "func "+fmt.Sprintf("f%d", i%4)+"()")
			assert.NotNil(t, s)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, []string{"f0.oriz", "f1.oriz", "f2.oriz", "f3.oriz"}, ix.Paths())
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("x"), Fingerprint("x"))
	assert.NotEqual(t, Fingerprint("x"), Fingerprint("y"))
}
