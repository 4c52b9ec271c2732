package echoapi

import (
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/edukit/eduhub/core"
	"github.com/edukit/eduhub/core/user"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// SortUsers applies the bound orderings in sequence; unknown fields are
// skipped.
func (ord *Ordering) SortUsers(users []user.User) {
	for i := len(ord.Orderings) - 1; i >= 0; i-- {
		o := ord.Orderings[i]
		less := userLessFunc(o, users)
		if less == nil {
			continue
		}
		sort.SliceStable(users, less)
	}
}

func userLessFunc(ord core.DBOrdering, users []user.User) func(i, j int) bool {
	var less func(i, j int) bool
	switch ord.Field {
	case "name":
		less = func(i, j int) bool { return users[i].Name < users[j].Name }
	case "username":
		less = func(i, j int) bool { return users[i].Username < users[j].Username }
	case "email":
		less = func(i, j int) bool { return users[i].Email < users[j].Email }
	case "created_at":
		less = func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) }
	default:
		return nil
	}
	if !ord.Ascending {
		asc := less
		less = func(i, j int) bool { return asc(j, i) }
	}
	return less
}
