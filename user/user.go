package user

import (
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/utils"
)

type UserId int32

type User struct {
	id  UserId
	pos utils.Position
}

func NewUser(x, y float64) *User {
	return &User{
		pos: utils.Position{X: x, Y: y},
	}
}

func (u *User) GetId() UserId {
	return u.id
}

func (u *User) GetPosition() utils.Position {
	return u.pos
}
