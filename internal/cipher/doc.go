// Package cipher exposes the ADFGVX cipher and the formatting steps around it
// as named, chainable operations.
//
// # Quick Start
//
//	op, _ := cipher.GetOperation("adfgvx_encrypt")
//	out, _ := op.Execute(ctx, []byte("LUCAS"), map[string]interface{}{"key": "UM"})
//	// out: []byte("XFFAADGAAG")
//
// # Transformation Pipelines
//
// Chain operations and reverse the chain to undo it:
//
//	pipeline := &cipher.Pipeline{
//	    Operations: []cipher.OperationConfig{
//	        {Name: "adfgvx_encrypt", Parameters: map[string]interface{}{"key": "GERMAN"}},
//	        {Name: "group_blocks"},
//	    },
//	    Reversible: true,
//	}
//
//	sent, _ := pipeline.Execute(ctx, []byte("ATTACK AT DAWN"))
//	reversed, _ := pipeline.Reverse()
//	received, _ := reversed.Execute(ctx, sent)
//
// Parameters shared by every step, usually the key, can be supplied once with
// Pipeline.Bind.
//
// # Recipe Management
//
// Recipes are named pipelines persisted as YAML:
//
//	rm := cipher.NewRecipeManager("/path/to/recipes")
//	_ = rm.LoadRecipes()
//	recipe, _ := rm.GetRecipe("field-message")
//	out, _ := recipe.Pipeline.Bind(map[string]interface{}{"key": "GERMAN"}).Execute(ctx, msg)
//
// # Detection
//
// SmartDetector recognises raw ciphertext, grouped ciphertext, Base64 armor
// and plaintext. PrepareCiphertext uses it to strip transport layers before
// deciphering.
//
// # Available Operations
//
//   - adfgvx_encrypt/adfgvx_decrypt - the cipher (param: key)
//   - normalize_text - upper-case and drop characters missing from the square
//   - group_blocks/ungroup_blocks - transmission groups (param: size)
//   - base64_encode/base64_decode - Base64 armor
//
// # Thread Safety
//
// The operation registry is guarded by a read/write mutex. Operations are
// stateless and safe for concurrent use. RecipeManager uses internal locking.
package cipher
