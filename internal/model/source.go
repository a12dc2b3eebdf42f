package model

// Path represents a file system path.
type Path string

// Language identifies a target grammar recognized by the language-detection
// adapter. Only LangPython is accepted by the pipeline.
type Language string

// Detected languages.
const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangGo         Language = "go"
	LangUnknown    Language = ""
)
