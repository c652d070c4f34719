// Package textutil holds small string helpers shared by the naming code.
package textutil
