package core

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/account"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/crypto"
)

// Transaction is a transfer of value between two addresses. The signature
// covers CoreBytes, so sender, recipient and value cannot change after
// signing without invalidating it.
type Transaction struct {
	Sender    account.Address `json:"sender"`
	Recipient account.Address `json:"recipient"`
	Value     float64         `json:"value"`
	Signature []byte          `json:"signature,omitempty"`

	fault *ValidationError
}

// NewTransaction creates an unsigned transfer from sender to recipient.
func NewTransaction(sender, recipient account.Address, value float64) Transaction {
	return Transaction{
		Sender:    sender,
		Recipient: recipient,
		Value:     value,
	}
}

// NewRewardTransaction creates the unsigned system-issued transaction that
// credits a mining reward. Reward transactions bypass signature verification.
func NewRewardTransaction(miner account.Address, reward float64) Transaction {
	return Transaction{
		Sender:    account.SystemAddress,
		Recipient: miner,
		Value:     reward,
	}
}

// CoreBytes encodes (sender, recipient, value) deterministically, excluding
// the signature. This exact byte sequence is both signed and verified, so
// the two sides can never drift apart.
func (tx *Transaction) CoreBytes() []byte {
	buf := make([]byte, 0, 2*account.AddressLength+24)
	buf = append(buf, tx.Sender.Bytes()...)
	buf = append(buf, tx.Recipient.Bytes()...)
	buf = append(buf, strconv.FormatFloat(tx.Value, 'f', -1, 64)...)
	return buf
}

// Sign signs CoreBytes with privateKey and stores the signature, then
// immediately self-validates. Signing succeeds syntactically for any key; a
// key that does not correspond to Sender surfaces as the self-validation's
// *ValidationError.
func (tx *Transaction) Sign(privateKey *ecdsa.PrivateKey) error {
	signature, err := crypto.Sign(privateKey, tx.CoreBytes())
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	tx.Signature = signature
	return tx.Validate()
}

// Validate recomputes CoreBytes and verifies the signature against Sender's
// key material. The most recent failure stays retrievable through
// ValidationFault for diagnostic reporting after the call site has moved on.
func (tx *Transaction) Validate() error {
	var fault *ValidationError
	switch {
	case len(tx.Signature) == 0:
		fault = &ValidationError{Detail: "missing signature"}
	case len(tx.Signature) < crypto.SignatureLength-1:
		fault = &ValidationError{Detail: "malformed signature"}
	case !crypto.Verify(tx.Sender.Bytes(), tx.CoreBytes(), tx.Signature):
		fault = &ValidationError{Detail: "signature does not verify against sender"}
	}

	tx.fault = fault
	if fault != nil {
		return fault
	}
	return nil
}

// ValidationFault returns the failure recorded by the most recent Validate
// call, or nil if it passed.
func (tx *Transaction) ValidationFault() *ValidationError {
	return tx.fault
}

// IsReward reports whether the transaction was issued by the system address.
func (tx *Transaction) IsReward() bool {
	return tx.Sender.IsSystem()
}

// String renders a short human-readable form for logs and console output.
func (tx *Transaction) String() string {
	return fmt.Sprintf("%s -> %s: %s", tx.Sender.Display(), tx.Recipient.Display(),
		strconv.FormatFloat(tx.Value, 'f', -1, 64))
}
