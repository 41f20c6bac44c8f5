// Package guest is the Go side of the boundary for guests built with
// GOOS=wasip1 GOARCH=wasm.
//
// Values and vectors are opaque handles owned by the host. Handles returned
// by Cons, Integer, ReadValue, String and VectorNew are owned and must be
// dropped; handles returned by Car and Cdr are borrowed from their argument
// and become invalid once its root is dropped. Any misuse aborts the whole
// execution.
//
//	func main() {
//		list := guest.ReadValue()
//		defer list.Drop()
//		guest.CommitInteger(int32(guest.Length(list)))
//	}
package guest
