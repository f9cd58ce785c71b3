package router

import "library-lending/internal/transport/http/handler"

// Lending registers every lending module.
func Lending(d handler.Deps) *Registry {
	return new(Registry).Register(
		handler.NewAuth(d),
		handler.NewBooks(d),
		handler.NewBorrows(d),
		handler.NewFines(d),
		handler.NewWishlist(d),
		handler.NewUsers(d),
	)
}
