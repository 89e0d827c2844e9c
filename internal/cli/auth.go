package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/api"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the task backend",
	RunE:  withApp(runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored credential",
	RunE:  withApp(runLogout),
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE:  withApp(runSignup),
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().String("email", "", "Account email")
		c.Flags().String("password", "", "Account password (prompted when omitted)")
	}
	signupCmd.Flags().String("name", "", "Display name")
}

func runLogin(cmd *cobra.Command, a *app, args []string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	email, err := flagOrPrompt(cmd, in, "email", "Email: ")
	if err != nil {
		return err
	}
	password, err := flagOrPrompt(cmd, in, "password", "Password: ")
	if err != nil {
		return err
	}

	if err := a.session.SignIn(cmd.Context(), email, password); err != nil {
		return errors.New(api.Message(err, "Sign in failed"))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, a *app, args []string) error {
	if err := a.session.SignOut(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runSignup(cmd *cobra.Command, a *app, args []string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	name, err := flagOrPrompt(cmd, in, "name", "Name: ")
	if err != nil {
		return err
	}
	email, err := flagOrPrompt(cmd, in, "email", "Email: ")
	if err != nil {
		return err
	}
	password, err := flagOrPrompt(cmd, in, "password", "Password: ")
	if err != nil {
		return err
	}

	user, err := a.session.SignUp(cmd.Context(), name, email, password)
	if err != nil {
		return errors.New(api.Message(err, "Sign up failed"))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", user.DisplayName())
	return nil
}

// flagOrPrompt returns the flag value, asking on stdin when it is empty
func flagOrPrompt(cmd *cobra.Command, in *bufio.Reader, flag, prompt string) (string, error) {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s is required", flag)
	}
	return line, nil
}
