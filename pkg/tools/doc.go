// Package tools groups the tool registry and the ways tools are exposed.
//
//   - [github.com/germanamz/skillbridge/pkg/tools/toolbox]: typed tool registry with schema validation
//   - [github.com/germanamz/skillbridge/pkg/tools/basetools]: built-in tools every agent may carry
//   - [github.com/germanamz/skillbridge/pkg/tools/mcpserver]: serves a toolbox over MCP
package tools
