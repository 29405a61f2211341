// Package shader selects and caches shader program variants.
//
// A variant is identified by a program name, a Defines set and a set of
// index parameters (loop bounds such as the number of blur taps). The
// structural hash of the three is the cache key, so a define combination
// that recurs reuses the program compiled the first time.
//
// Program sources are WGSL kept in a Library. Before compilation a source
// goes through a small preprocessor:
//
//	#include <name>          splice an include registered in the library
//	#for i in 0..param       repeat the block, replacing {i}; param is an
//	#endfor                  index parameter name or an integer literal
//	#ifdef NAME / #ifndef    keep or drop lines depending on Defines
//	#else / #endif
//
// Every define with a numeric value is emitted as a WGSL const declaration
// at the top of the module.
package shader
