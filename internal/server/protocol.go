package server

import (
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

// Console ops.
const (
	OpGet        = "get"
	OpSet        = "set"
	OpCall       = "call"
	OpCreate     = "create"
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
	OpTree       = "tree"
)

// Request is one console message. Target is an ObjectRef value; Name is the
// property, procedure or event depending on Op.
type Request struct {
	ID     int64         `json:"id"`
	Op     string        `json:"op"`
	Target value.Value   `json:"target"`
	Name   string        `json:"name,omitempty"`
	Class  string        `json:"class,omitempty"`
	Args   []value.Value `json:"args,omitempty"`
}

// Response answers the request with the same ID. Event pushes carry ID 0
// and the connection they were delivered through.
type Response struct {
	ID     int64         `json:"id,omitempty"`
	OK     bool          `json:"ok"`
	Result *value.Value  `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
	Tree   *TreeNode     `json:"tree,omitempty"`
	Event  string        `json:"event,omitempty"`
	Conn   string        `json:"conn,omitempty"`
	Args   []value.Value `json:"args,omitempty"`
}

type TreeNode struct {
	Ref      value.Value `json:"ref"`
	Class    string      `json:"class"`
	Name     string      `json:"name"`
	Children []*TreeNode `json:"children,omitempty"`
}

func ok(id int64, result value.Value) Response {
	return Response{ID: id, OK: true, Result: &result}
}

func failed(id int64, err error) Response {
	return Response{ID: id, Error: err.Error()}
}
