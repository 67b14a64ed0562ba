package main

import (
	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/user"
)

func (cli *commandLine) addUser(name, uname, email, role, pwd string) error {
	svc := user.NewService(cli.usrRepo, cli.mailSvc)
	_, err := svc.Create(user.NewUser{
		Name:     core.CleanString(name),
		Username: core.CleanString(uname, true /* lower */),
		Email:    core.CleanString(email, true /* lower */),
		Role:     role,
		Password: pwd,
	})
	return err
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	svc := user.NewService(cli.usrRepo, cli.mailSvc)
	usr, err := svc.GetByUsernameOrEmail(uname)
	if err != nil {
		return err
	}
	_, err = svc.SetPassword(usr, pwd)
	return err
}
