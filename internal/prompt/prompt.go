// Package prompt assembles the system prompt sent with every model call.
package prompt

import "strings"

// Placeholders recognized in a prompt template.
const (
	PlaceholderLibraries = "{libraries}"
	PlaceholderTables    = "{tables}"
	PlaceholderFunction  = "{function_name}"
	PlaceholderHistory   = "{history}"
	PlaceholderInput     = "{input}"
)

// DefaultTemplate instructs the model to answer EDA questions with a single
// named function over the provided tables.
const DefaultTemplate = `You are a chatbot that helps data scientists perform exploratory data analysis.
Following is a conversation between you and a data scientist; provide a response to the data scientist's question.
You cannot use any libraries that are not listed in the libraries section.
You must write the code as a function that takes the tables as arguments and returns a string, dictionary or figure, or any tuple of them.
The function must be named {function_name}.
You cannot use any variables that are not provided in the tables section.
You cannot run the code, you can only write it.
When writing Python code you must use markdown notation: start with ` + "```python" + ` and end with ` + "```" + `.
You have access to the following libraries:
{libraries}
Answer with the following table variables:
{tables}
Use the following history to help you answer the question:
{history}
Answer the following: {input}`

// Builder renders prompts from a template and the session's fixed context.
type Builder struct {
	template     string
	libraries    string
	tables       string
	functionName string
}

// NewBuilder creates a Builder. An empty template selects DefaultTemplate;
// an empty functionName selects "eda_function".
func NewBuilder(template string, libraries []string, tablesDesc, functionName string) *Builder {
	if template == "" {
		template = DefaultTemplate
	}
	if functionName == "" {
		functionName = "eda_function"
	}
	return &Builder{
		template:     template,
		libraries:    strings.Join(libraries, ", "),
		tables:       tablesDesc,
		functionName: functionName,
	}
}

// UpdateTables replaces the tables description used in later prompts.
func (b *Builder) UpdateTables(desc string) { b.tables = desc }

// FunctionName returns the function the generated code must define.
func (b *Builder) FunctionName() string { return b.functionName }

// Render substitutes every placeholder and returns the full prompt text.
func (b *Builder) Render(history, input string) string {
	r := strings.NewReplacer(
		PlaceholderLibraries, b.libraries,
		PlaceholderTables, b.tables,
		PlaceholderFunction, b.functionName,
		PlaceholderHistory, history,
		PlaceholderInput, input,
	)
	return r.Replace(b.template)
}
