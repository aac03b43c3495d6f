package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/Hoopakid/HRMobileProjectBackend/core/degree"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sqlx.DB
	engine    string
	usrSvc    user.Service
	degreeSvc *degree.Service
	validate  *validator.Validate
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                     - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -phone PHONE -first NAME -last NAME   - create a user, or update an existing one")
	fmt.Fprintln(cli.out, "          [-degree ID] [-admin]")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                                 - reset a user's password")
	fmt.Fprintln(cli.out, "  createdegree -name NAME                                    - create a degree")
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if cli.out == nil {
		cli.out = os.Stdout
	}
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserPhone := addUserCmd.String("phone", "", "The user's phone number.")
	addUserFirst := addUserCmd.String("first", "", "The user's first name.")
	addUserLast := addUserCmd.String("last", "", "The user's last name.")
	addUserDegree := addUserCmd.Int("degree", 0, "The user's degree id. Optional for administrators.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant access to the admin panel.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	createDegreeCmd := flag.NewFlagSet("createdegree", flag.ContinueOnError)
	createDegreeName := createDegreeCmd.String("name", "", "The degree name.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, createDegreeCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserPhone == "" || *addUserFirst == "" || *addUserLast == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		_, err = cli.addUser(user.NewUser{
			FirstName:   *addUserFirst,
			LastName:    *addUserLast,
			PhoneNumber: *addUserPhone,
			Email:       *addUserEmail,
			Degree:      *addUserDegree,
			Password:    pwd,
			IsAdmin:     *addUserAdmin,
		})
		return err

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "createdegree":
		if err := createDegreeCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *createDegreeName == "" {
			createDegreeCmd.Usage()
			return errHelp
		}
		_, err := cli.createDegree(*createDegreeName)
		return err

	default:
		cli.printUsage()
		return errHelp
	}
}
