package main

func (cli *commandLine) verifyUser(uname string) error {
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err != nil {
		return err
	}
	_, err = cli.usrRepo.MarkUserVerified(usr.ID)
	return err
}
