// Package exprjson converts typed expression trees to JSON documents and back.
//
// A document is a versioned envelope around one expression node:
//
//	{
//	  "$schema": "https://github.com/hengadev/exprjson/schema/expression/v1",
//	  "expression": { "lambda": { ... } }
//	}
//
// Every node is a single-key object whose key names the node kind and whose
// value holds its fields. Constants carry typed values written in a small set
// of value categories (primitive, enum, nullable, record, bytes, sequence,
// dictionary, tuple, object), so a document read back yields values of the
// same Go types that were written.
//
// # Binders
//
// Parameters and label targets are written in full the first time they are
// met and as references (parameterRef, labelTargetRef) afterwards. Decoding
// rebuilds a single *ast.Parameter or *ast.LabelTarget per id, so identity is
// preserved across the round trip.
//
// # Types and members
//
// Type names are short canonical names for built-in types ("int32",
// "string", "uuid", "duration") and package qualified names otherwise.
// Named types, enums, functions and constructors used by a document must be
// registered on the Codec that reads it:
//
//	c, err := exprjson.New(exprjson.WithIndent("  "))
//	if err != nil {
//	    return err
//	}
//	c.RegisterType(reflect.TypeOf(Account{}))
//	if err := c.RegisterConstructor(NewAccount); err != nil {
//	    return err
//	}
//
//	data, err := c.Marshal(expr)
//	...
//	expr, err = c.Unmarshal(data)
//
// # Errors
//
// Every error raised for a document node carries the node path, for example
// "decode $.expression.lambda.body.call.arguments[1]: structural error:
// missing required field: 'type'". Use IsStructuralError and IsSemanticError
// to tell a malformed document from one that names things this process does
// not know.
//
// # Storage
//
// Save and Load move documents through a DocumentStore. The providers/sqlite
// and providers/s3 packages implement it and keep a BLAKE2b digest next to
// each document, so Load fails with ErrDocumentCorrupted when stored bytes
// were changed. The exprjson command in cmd/exprjson wraps both stores.
//
// # Concurrency
//
// A Codec holds no per-call state; binder ids and the decoded binder table
// live in the call. Registration and SetValidator may run concurrently with
// encoding and decoding.
package exprjson
