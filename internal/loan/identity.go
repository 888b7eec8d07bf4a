// internal/loan/identity.go
package loan

import "strings"

// InstanceKeyPrefix prefixes every loan evaluation instance key.
const InstanceKeyPrefix = "loan-evaluation-"

// NormalizeIdentity turns a submitted email into the identity key used for
// duplicate detection and instance keys: surrounding whitespace is dropped
// and the address is lower-cased.
func NormalizeIdentity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InstanceKey derives the deterministic workflow instance key for an identity.
func InstanceKey(identity string) string {
	return InstanceKeyPrefix + strings.ReplaceAll(identity, "@", "-at-")
}

// ContactInstanceKeyPrefix prefixes every contact-preference instance key.
const ContactInstanceKeyPrefix = "contact-preference-"

// ContactInstanceKey derives the contact-preference instance key for an identity.
func ContactInstanceKey(identity string) string {
	return ContactInstanceKeyPrefix + strings.ReplaceAll(identity, "@", "-at-")
}
