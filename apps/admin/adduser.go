package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/user"
)

// addUser updates or creates an active user.User. Admins get all roles, other new users are students.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname})
	if err != nil && !core.IsNotFound(err) {
		return err
	}
	exists := err == nil
	if !exists {
		if usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email}); err != nil && !core.IsNotFound(err) {
			return err
		}
		exists = err == nil
	}

	now := time.Now().UTC()
	if !exists {
		usr = user.User{Username: uname, Email: email, Roles: []string{user.RoleStudent}, CreatedAt: now}
	}
	if name != "" {
		usr.Name = name
	} else if usr.Name == "" {
		usr.Name = uname
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %q saved\n", usr.Username)
	return nil
}
