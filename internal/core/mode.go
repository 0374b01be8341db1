package core

import "fmt"

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

func ParseEnvironment(s string) (Environment, error) {
	switch s {
	case "", "dev", string(EnvDevelopment):
		return EnvDevelopment, nil
	case "prod", string(EnvProduction):
		return EnvProduction, nil
	}
	return "", fmt.Errorf("unknown environment %q", s)
}

func (e Environment) IsProduction() bool {
	return e == EnvProduction
}
