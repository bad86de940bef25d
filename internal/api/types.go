package api

import (
	"github.com/samcharles93/qconv/internal/testvec"
)

type BackendsResponse struct {
	Object    string   `json:"object"`
	Available []string `json:"available"`
	Detected  string   `json:"detected"`
	Active    string   `json:"active"`
	Rounding  string   `json:"rounding"`
}

type DispatchResponse struct {
	Object  string `json:"object"`
	Op      string `json:"op"`
	Kernel  string `json:"kernel"`
	Variant string `json:"variant"`
	Loop    string `json:"loop"`
	Generic bool   `json:"generic"`
}

// RunResponse is the outcome of one kernel run.
type RunResponse struct {
	ID        string              `json:"id"`
	Object    string              `json:"object"`
	CreatedAt int64               `json:"created_at"`
	Case      string              `json:"case"`
	Op        string              `json:"op"`
	Backend   string              `json:"backend"`
	Variant   string              `json:"variant"`
	CRC       string              `json:"crc"`
	Output    *testvec.TensorSpec `json:"output,omitempty"`
	Golden    string              `json:"golden,omitempty"`
}

type DeleteRunResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
