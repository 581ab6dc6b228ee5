package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/tkamala/darasa/core"
	"github.com/tkamala/darasa/core/batch"
	"github.com/tkamala/darasa/core/course"
	"github.com/tkamala/darasa/core/user"
	"github.com/tkamala/darasa/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	db       *sql.DB
	ds       *database.Datastore
	usrRepo  user.Repository
	crsRepo  course.Repository
	batchSvc *batch.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a database migration command (up, down, status, ...)")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-admin] - update or create a user; the password is prompted next")
	fmt.Println("  importgrades -file PATH [-submitted-by ID] [-validate-only] [-keep-duplicates] - import a grade sheet")
	fmt.Println("  loadsample - seed demo users, a course, an enrollment and a grade")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The new user's username.")
	addUserEmail := addUserCmd.String("email", "", "The new user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant the admin role.")

	importCmd := flag.NewFlagSet("importgrades", flag.ExitOnError)
	importFile := importCmd.String("file", "", "Path of the grade sheet (CSV).")
	importSubmitter := importCmd.Int("submitted-by", 0, "User ID recorded as the submitter.")
	importValidateOnly := importCmd.Bool("validate-only", false, "Validate the sheet without writing.")
	importKeepDups := importCmd.Bool("keep-duplicates", false, "Insert rows whose grade already exists.")
	importChunkSize := importCmd.Int("chunk-size", 0, "Rows per insert round trip.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, *addUserEmail, string(pwd), *addUserAdmin)
	case "importgrades":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		opts := batch.DefaultOptions()
		opts.ValidateOnly = *importValidateOnly
		opts.SkipDuplicates = !*importKeepDups
		if *importChunkSize > 0 {
			opts.ChunkSize = *importChunkSize
		}
		return cli.importGrades(*importFile, *importSubmitter, opts)
	case "loadsample":
		return cli.loadSample()
	default:
		cli.printUsage()
		return errHelp
	}
}
