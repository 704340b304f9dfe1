package cli

type Options struct {
	Command        string
	Server         string
	User           string
	Password       string
	CredentialsSet bool
	From           string
	To             string
	Department     string
	TargetsFile    string
	Session        string
	Identity       string
	Digest         bool
	JSON           bool
}
