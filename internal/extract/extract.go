// Package extract derives coarse requirement hints from a prompt. The hints
// only enrich the outbound prompt and are never checked against the output.
package extract

import (
	"strings"

	"github.com/af-corp/shipsense/internal/types"
)

// rule maps any of its triggers to a single category.
type rule struct {
	triggers []string
	category string
}

func (r rule) matches(text string) bool {
	for _, t := range r.triggers {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

var hostRules = []rule{
	{[]string{"web"}, "webservers"},
	{[]string{"database", "db"}, "dbservers"},
	{[]string{"app"}, "appservers"},
}

var taskRules = []rule{
	{[]string{"install", "package"}, "package_installation"},
	{[]string{"nginx"}, "nginx_setup"},
	{[]string{"apache"}, "apache_setup"},
	{[]string{"docker"}, "docker_setup"},
	{[]string{"user"}, "user_management"},
	{[]string{"firewall"}, "firewall_configuration"},
	{[]string{"service"}, "service_management"},
	{[]string{"deploy"}, "application_deployment"},
	{[]string{"database", "mysql", "postgres"}, "database_setup"},
}

var providerRules = []rule{
	{[]string{"azure"}, "azurerm"},
	{[]string{"gcp", "google"}, "google"},
}

var resourceRules = []rule{
	{[]string{"vpc", "network"}, "vpc"},
	{[]string{"ec2", "instance", "vm"}, "compute_instance"},
	{[]string{"s3", "bucket", "storage"}, "storage_bucket"},
	{[]string{"rds", "database"}, "database"},
	{[]string{"security group", "firewall"}, "security_group"},
	{[]string{"load balancer", "alb", "elb"}, "load_balancer"},
	{[]string{"eks", "aks", "gke", "kubernetes"}, "kubernetes_cluster"},
	{[]string{"iam", "role"}, "iam_role"},
}

// Playbook extracts the target host group and task kinds for an Ansible
// playbook. Hosts default to "all" and the last matching group wins.
func Playbook(text string) types.PlaybookRequirements {
	t := strings.ToLower(text)
	return types.PlaybookRequirements{
		Hosts: last(t, hostRules, "all"),
		Tasks: all(t, taskRules),
	}
}

// Config extracts the cloud provider and resource kinds for a Terraform
// configuration. The provider defaults to "aws".
func Config(text string) types.ConfigRequirements {
	t := strings.ToLower(text)
	return types.ConfigRequirements{
		Provider:  last(t, providerRules, "aws"),
		Resources: all(t, resourceRules),
	}
}

func last(text string, rules []rule, def string) string {
	v := def
	for _, r := range rules {
		if r.matches(text) {
			v = r.category
		}
	}
	return v
}

// all keeps check order and does not drop duplicates.
func all(text string, rules []rule) []string {
	out := []string{}
	for _, r := range rules {
		if r.matches(text) {
			out = append(out, r.category)
		}
	}
	return out
}
