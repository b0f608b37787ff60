// Package compile loads the bytecodes of compiled contracts in bulk.
//
// Compilations hold contracts, and every contract carries two bytecodes:
// the creation bytecode and the deployed (call) bytecode. LoadBytecodes
// flattens all of them into a single "bytecodes" request, hands it to a
// loader, and returns the compilations with each contract's db record
// extended by two identifier references:
//
//   - db.createBytecode - result for the contract's bytecode
//   - db.callBytecode   - result for the contract's deployedBytecode
//
// # Basic Usage
//
//	out, err := compile.LoadBytecodes(ctx, loader, compilations)
//	if err != nil {
//		return err
//	}
//	if id, ok := out[0].Contracts[0].DB.CreateBytecode(); ok {
//		fmt.Println(id.ID)
//	}
//
// # Batch Layout
//
// The request holds 2 entries per contract, ordered by compilation, then
// contract, then bytecode before deployedBytecode. Contract k (in that
// iteration order) always occupies positions 2k and 2k+1.
//
// Existing keys in a contract's db record are kept. Only createBytecode and
// callBytecode are added or overwritten. Inputs are never mutated.
package compile
