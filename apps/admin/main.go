package main

import (
	"fmt"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/degree"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
	emailsvc "github.com/Hoopakid/HRMobileProjectBackend/services/email"
	logsvc "github.com/Hoopakid/HRMobileProjectBackend/services/logger"
	"github.com/Hoopakid/HRMobileProjectBackend/storage/database"
	sqlxrepos "github.com/Hoopakid/HRMobileProjectBackend/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stderr, "admin", conf)
	defer logger.Wait()

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:        db,
		engine:    conf.Database.Engine,
		usrSvc:    user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewService(conf, logger), conf),
		degreeSvc: degree.NewService(sqlxrepos.NewDegreeRepository(db)),
		validate:  validate,
		out:       os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", describe(err, translator))
		}
		os.Exit(1)
	}
}

// describe flattens validation errors into "field: message" lines.
func describe(err error, translator ut.Translator) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		msg := ""
		for _, fe := range vErrs {
			msg += fmt.Sprintf("\n  %s: %s", fe.Field(), fe.Translate(translator))
		}
		return "invalid input" + msg
	}
	if vErr, ok := errors.Cause(err).(*core.ValidationError); ok && len(vErr.Fields) > 0 {
		msg := ""
		for _, f := range vErr.Fields {
			msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Error)
		}
		return "invalid input" + msg
	}
	return err.Error()
}
