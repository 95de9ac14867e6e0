package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/formscan/cmd/formscan/cmd"
)

// RegisterCLISteps registers the command line steps.
func (testCtx *TestContext) RegisterCLISteps(sc *godog.ScenarioContext) {
	sc.Step(`^a token file "([^"]*)" with the "([^"]*)" form$`, testCtx.aTokenFileWithForm)
	sc.Step(`^a file "([^"]*)" containing "([^"]*)"$`, testCtx.aFileContaining)
	sc.Step(`^a blank page image "([^"]*)"$`, testCtx.aBlankPageImage)
	sc.Step(`^I run "formscan ([^"]*)"$`, testCtx.iRunFormscan)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the error should contain "([^"]*)"$`, testCtx.theErrorShouldContain)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the form should have (\d+) sections?$`, testCtx.theFormShouldHaveSections)
	sc.Step(`^section (\d+) should be named "([^"]*)"$`, testCtx.sectionShouldBeNamed)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
}

// iRunFormscan executes the root command in-process. Arguments are split on spaces and
// {tmp} expands to the scenario's temp directory.
func (testCtx *TestContext) iRunFormscan(args string) error {
	argv := strings.Fields(testCtx.expand(args))

	root := cmd.GetRootCommand()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(argv)

	testCtx.LastArgs = argv
	testCtx.LastError = root.Execute()
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command %v failed: %w\nstderr: %s", testCtx.LastArgs, testCtx.LastError, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command %v succeeded unexpectedly", testCtx.LastArgs)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldContain(text string) error {
	if testCtx.LastError == nil {
		return errors.New("expected an error but the command succeeded")
	}
	if !strings.Contains(testCtx.LastError.Error(), text) {
		return fmt.Errorf("error %q does not contain %q", testCtx.LastError, text)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(text string) error {
	if !strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains %q:\n%s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	if !json.Valid([]byte(testCtx.LastOutput)) {
		return fmt.Errorf("output is not valid JSON:\n%s", testCtx.LastOutput)
	}
	return nil
}

type sectionsOnly struct {
	Sections []struct {
		Name string `json:"name"`
	} `json:"sections"`
}

// sections reads sections from either the result envelope or a bare form.
func (testCtx *TestContext) sections() (sectionsOnly, error) {
	var envelope struct {
		Form *sectionsOnly `json:"form"`
		sectionsOnly
	}
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &envelope); err != nil {
		return sectionsOnly{}, fmt.Errorf("failed to parse output: %w", err)
	}
	if envelope.Form != nil {
		return *envelope.Form, nil
	}
	return envelope.sectionsOnly, nil
}

func (testCtx *TestContext) theFormShouldHaveSections(n int) error {
	form, err := testCtx.sections()
	if err != nil {
		return err
	}
	if len(form.Sections) != n {
		return fmt.Errorf("expected %d sections, got %d", n, len(form.Sections))
	}
	return nil
}

func (testCtx *TestContext) sectionShouldBeNamed(idx int, name string) error {
	form, err := testCtx.sections()
	if err != nil {
		return err
	}
	if idx < 1 || idx > len(form.Sections) {
		return fmt.Errorf("section %d out of range (have %d)", idx, len(form.Sections))
	}
	if got := form.Sections[idx-1].Name; got != name {
		return fmt.Errorf("section %d is named %q, want %q", idx, got, name)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.expand(name)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.expand(name))
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain %q", name, text)
	}
	return nil
}
