package embed_data

import _ "embed"

//go:embed prompts/document_file.tmpl
var DocumentFilePrompt []byte

//go:embed prompts/chat_stub.txt
var ChatStubMessage []byte

//go:embed tree-sitter/queries/go.json
var GoQuery []byte

//go:embed tree-sitter/queries/python.json
var PythonQuery []byte

//go:embed tree-sitter/queries/javascript.json
var JavascriptQuery []byte

//go:embed tree-sitter/queries/typescript.json
var TypescriptQuery []byte

//go:embed models_details/model_details.json
var ModelDetails []byte
