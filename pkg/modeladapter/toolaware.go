package modeladapter

import "github.com/germanamz/skillbridge/pkg/tools/toolbox"

// ToolAware is implemented by completers that declare tools natively in
// their API requests. Completers without it are driven through the text
// action protocol of the agent runtime.
type ToolAware interface {
	SetTools(tools []toolbox.Tool)
}
