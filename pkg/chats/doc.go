// Package chats holds the provider-neutral conversation model shared by every
// completer and by the agent runtime.
//
//   - [github.com/germanamz/skillbridge/pkg/chats/role]: sender roles
//   - [github.com/germanamz/skillbridge/pkg/chats/content]: typed message parts
//   - [github.com/germanamz/skillbridge/pkg/chats/message]: ChatMessage with optional token usage
//   - [github.com/germanamz/skillbridge/pkg/chats/chat]: ordered conversation container
package chats
