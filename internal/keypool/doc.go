// Package keypool implements admission control over a fixed set of
// rate-limited external API key slots. Callers acquire a slot before any
// downstream call and release it afterwards; released slots sit in a
// per-call-kind cooldown before becoming available again. A background
// sweep reclaims slots whose holders hung.
package keypool
