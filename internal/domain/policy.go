package domain

// Principal is the authenticated requester as supplied by the identity layer.
type Principal struct {
	ID   string
	Role Role
}

type Action string

const (
	ActionManageBooks        Action = "books.manage"
	ActionViewAllBorrows     Action = "borrows.view_all"
	ActionViewBorrow         Action = "borrows.view"
	ActionDeleteBorrowRecord Action = "borrows.delete"
	ActionManageFines        Action = "fines.manage"
	ActionViewFines          Action = "fines.view"
	ActionDeleteFine         Action = "fines.delete"
	ActionListUsers          Action = "users.list"
	ActionManageUsers        Action = "users.manage"
	ActionDeleteUser         Action = "users.delete"
)

// Target describes the entity an action touches. OwnerID is the user that owns a
// record; Role is the role of a target user.
type Target struct {
	OwnerID string
	UserID  string
	Role    Role
}

var staffOnly = map[Action]bool{
	ActionManageBooks:    true,
	ActionViewAllBorrows: true,
	ActionManageFines:    true,
	ActionListUsers:      true,
}

var adminOnly = map[Action]bool{
	ActionDeleteBorrowRecord: true,
	ActionDeleteFine:         true,
	ActionManageUsers:        true,
}

// Authorize returns nil when p may perform a on t, a *ForbiddenError otherwise.
func Authorize(p Principal, a Action, t Target) error {
	switch {
	case staffOnly[a]:
		if !p.Role.Staff() {
			return Forbidden("insufficient role")
		}
		return nil
	case adminOnly[a]:
		if p.Role != RoleAdmin {
			return Forbidden("insufficient role")
		}
		return nil
	}

	switch a {
	case ActionViewBorrow, ActionViewFines:
		if p.Role.Staff() || (t.OwnerID != "" && p.ID == t.OwnerID) {
			return nil
		}
		return Forbidden("not the owner of this record")
	case ActionDeleteUser:
		return authorizeUserDelete(p, t)
	}
	return Forbidden("unknown action")
}

func authorizeUserDelete(p Principal, t Target) error {
	if !p.Role.Staff() {
		return Forbidden("insufficient role")
	}
	if p.ID == t.UserID {
		return Forbidden("cannot delete your own account")
	}
	switch t.Role {
	case RoleAdmin:
		if p.Role != RoleAdmin {
			return Forbidden("only an admin can delete an admin")
		}
	case RoleLibrarian:
		if p.Role == RoleLibrarian {
			return Forbidden("librarians cannot delete other librarians")
		}
	}
	return nil
}
