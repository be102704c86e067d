// Package modeladapter defines the Completer contract every model handle
// satisfies and an embeddable base for providers spoken to over plain HTTP.
//
// Provider-specific request shapes live in the packages under
// [github.com/germanamz/skillbridge/pkg/providers]; token accounting lives in
// [github.com/germanamz/skillbridge/pkg/modeladapter/usage].
package modeladapter
