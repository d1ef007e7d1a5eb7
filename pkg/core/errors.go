package core

import (
	"fmt"
	"strconv"
)

// Reasons attached to a TxError when a submission is rejected.
const (
	ReasonSignatureInvalid  = "signature_invalid"
	ReasonInsufficientFunds = "insufficient_funds"
)

// Reasons attached to a ChainFault when chain validation fails.
const (
	FaultLinkageMismatch = "linkage_mismatch"
	FaultPowInvalid      = "pow_invalid"
)

// ValidationError describes a failed transaction signature check.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "transaction validation failed: " + e.Detail
}

// TxError is a rejected submission. It carries the offending transaction in
// full so callers can report sender, recipient, value and signature without
// re-deriving state.
type TxError struct {
	Tx     Transaction
	Reason string
	Err    error
}

func (e *TxError) Error() string {
	msg := fmt.Sprintf("transaction rejected (%s): %s -> %s value %s",
		e.Reason, e.Tx.Sender.Display(), e.Tx.Recipient.Display(),
		strconv.FormatFloat(e.Tx.Value, 'f', -1, 64))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TxError) Unwrap() error { return e.Err }

// ChainFault pinpoints the first block at which chain validation failed.
type ChainFault struct {
	Index  uint64
	Reason string
}

func (f *ChainFault) Error() string {
	return fmt.Sprintf("chain invalid at block %d: %s", f.Index, f.Reason)
}
