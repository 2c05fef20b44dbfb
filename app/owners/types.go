package owners

// Config is one owner's file in the owners directory.
type Config struct {
	Owner      string     `yaml:"owner"`
	Credential Credential `yaml:"credential"`
	Feeds      []string   `yaml:"feeds"`
}

type Credential struct {
	TokenKey    string `yaml:"token_key"`
	TokenSecret string `yaml:"token_secret"`
	Email       string `yaml:"email"`
}

func (c Credential) IsSet() bool {
	return c.TokenKey != "" && c.TokenSecret != ""
}
