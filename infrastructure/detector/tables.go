package detector

import "github.com/rios0rios0/repoatlas/domain"

// The tables below are a condensed port of the per-ecosystem signature data
// the detectors ship with. Order within a table is meaningful only for
// readability; observations are merged per (category, name) regardless.

// NewFrontend builds the frontend framework/library detector.
func NewFrontend() *PatternDetector {
	filePatterns := []string{
		"*.js", "*.jsx", "*.ts", "*.tsx", "*.vue", "*.svelte",
		"*.html", "*.css", "*.scss", "*.sass",
		"package.json", "webpack.config.js", "vite.config.js", "angular.json",
		"next.config.js", "nuxt.config.js", "tailwind.config.js", "tsconfig.json",
	}

	rules := []Rule{
		{
			Name:           "React",
			Substrings:     []string{"from 'react'", `from "react"`, "react.component", "import react"},
			VersionPattern: `["']react["']:\s*["']([~^>=\d][^"']*)["']`,
		},
		{
			Name:           "Vue.js",
			Substrings:     []string{"from 'vue'", `from "vue"`, "new vue(", "createapp("},
			VersionPattern: `["']vue["']:\s*["']([~^>=\d][^"']*)["']`,
		},
		{
			Name:           "Angular",
			Substrings:     []string{"@angular/core", "ngmodule", "@component({"},
			VersionPattern: `["']@angular/core["']:\s*["']([~^>=\d][^"']*)["']`,
		},
		{Name: "Svelte", Substrings: []string{"svelte:", "from 'svelte'", `"svelte"`}},
		{Name: "jQuery", Substrings: []string{"jquery(", "$.ajax("}},
		{Name: "Next.js", Substrings: []string{"getstaticprops", "getserversideprops", `"next"`, "next/router"}},
		{Name: "Nuxt", Substrings: []string{"nuxt.config", `"nuxt"`}},
		{Name: "Gatsby", Substrings: []string{"gatsby-config", "gatsby-node"}},
		{Name: "Redux", Substrings: []string{"createstore(", "useselector(", "usedispatch(", "combinereducers("}},
		{Name: "GraphQL Client", Substrings: []string{"usequery(", "usemutation(", "apolloclient", "gql`"}},
		{Name: "Tailwind CSS", Substrings: []string{"tailwind.config", "@tailwind "}},
		{Name: "Bootstrap", Substrings: []string{"navbar-", "col-md-", "container-fluid", `"bootstrap"`}},
		{Name: "SASS/SCSS", Substrings: []string{"@mixin ", "@include ", "@extend "}},
		{
			Name:           "TypeScript",
			Substrings:     []string{"tsconfig", `"typescript"`},
			VersionPattern: `["']typescript["']:\s*["']([~^>=\d][^"']*)["']`,
		},
		{Name: "Webpack", Substrings: []string{"webpack.config", `"webpack"`}},
		{Name: "Vite", Substrings: []string{"vite.config", `"vite"`}},
		{Name: "Material UI", Substrings: []string{"@material-ui", "@mui/"}},
		{Name: "Storybook", Substrings: []string{"storiesof(", "@storybook/"}},
	}

	return New("frontend", domain.CategoryFrontend, filePatterns, rules)
}

// NewBackend builds the backend framework detector.
func NewBackend() *PatternDetector {
	filePatterns := []string{
		"*.py", "*.js", "*.ts", "*.java", "*.go", "*.rb", "*.php", "*.cs",
		"requirements.txt", "package.json", "pom.xml", "build.gradle",
		"Gemfile", "composer.json", "go.mod",
	}

	rules := []Rule{
		{Name: "Django", Substrings: []string{"from django", "django.conf", "installed_apps"}},
		{Name: "Flask", Substrings: []string{"from flask import", "flask(__name__)"}},
		{Name: "FastAPI", Substrings: []string{"from fastapi import", "fastapi()"}},
		{Name: "Express", Substrings: []string{"require('express')", `require("express")`, "express()"}},
		{Name: "NestJS", Substrings: []string{"@nestjs/common", "@module({"}},
		{
			Name:       "Spring Boot",
			Substrings: []string{"@springbootapplication", "spring-boot-starter"},
			Patterns:   []string{`@(RestController|RequestMapping)\b`},
		},
		{Name: "Ruby on Rails", Substrings: []string{"rails::application", "activerecord::base", "gem 'rails'"}},
		{Name: "Laravel", Substrings: []string{"illuminate\\", "laravel/framework"}},
		{Name: "Gin", Substrings: []string{"gin-gonic/gin", "gin.default()"}},
		{Name: "Echo", Substrings: []string{"labstack/echo", "echo.new()"}},
		{Name: "gRPC", Substrings: []string{"grpc.newserver", "import grpc", "google.golang.org/grpc"}},
		{Name: "GraphQL Server", Substrings: []string{"graphene.objecttype", "apollo-server", "gqlgen"}},
		{Name: "Celery", Substrings: []string{"from celery import", "celery("}},
		{Name: "ASP.NET", Substrings: []string{"microsoft.aspnetcore", "[apicontroller]"}},
	}

	return New("backend", domain.CategoryBackend, filePatterns, rules)
}

// NewDatabase builds the datastore/client detector. It inspects every
// scanned file: connection strings show up anywhere.
func NewDatabase() *PatternDetector {
	rules := []Rule{
		{Name: "PostgreSQL", Substrings: []string{"postgresql://", "postgres://", "psycopg2", "pgx", "jdbc:postgresql"}},
		{Name: "MySQL", Substrings: []string{"mysql://", "jdbc:mysql", "mysqlclient", "go-sql-driver/mysql"}},
		{Name: "MongoDB", Substrings: []string{"mongodb://", "mongodb+srv://", "mongoose.connect", "mongo-driver"}},
		{Name: "Redis", Substrings: []string{"redis://", "redis.createclient", "go-redis", "jedis"}},
		{Name: "Elasticsearch", Substrings: []string{"elasticsearch(", "elastic.co", "olivere/elastic"}},
		{Name: "SQLite", Substrings: []string{"sqlite3", "sqlite://"}},
		{Name: "Cassandra", Substrings: []string{"cassandra.cluster", "gocql"}},
		{Name: "DynamoDB", Substrings: []string{"dynamodb", "aws.dynamodb"}},
		{Name: "Kafka", Substrings: []string{"kafkaproducer", "kafkaconsumer", "kafka-go", "sarama"}},
		{Name: "RabbitMQ", Substrings: []string{"amqp://", "pika.blockingconnection", "amqp091"}},
		{Name: "SQLAlchemy", Substrings: []string{"sqlalchemy", "declarative_base"}},
		{Name: "GORM", Substrings: []string{"gorm.io/gorm", "gorm.open("}},
		{Name: "Prisma", Substrings: []string{"@prisma/client", "prisma.schema"}},
	}

	return New("database", domain.CategoryDatabase, nil, rules)
}

// NewInfrastructure builds the infrastructure/platform detector.
func NewInfrastructure() *PatternDetector {
	filePatterns := []string{
		"Dockerfile", "Dockerfile.*", "docker-compose*", "*.yml", "*.yaml",
		"*.tf", "*.tfvars", "*.json", "*.toml", "Makefile", "*.sh", "*.env",
	}

	rules := []Rule{
		{Name: "Docker", Substrings: []string{"dockerfile", "docker build"}, Patterns: []string{`(?m)^FROM\s+\S+`}},
		{Name: "Docker Compose", Substrings: []string{"docker-compose", "docker compose"}, Patterns: []string{`(?m)^services:\s*$`}},
		{Name: "Kubernetes", Substrings: []string{"apiversion:", "kind: deployment", "kind: service", "kubectl "}},
		{Name: "Helm", Substrings: []string{"chart.yaml", "{{ .values", "helm install"}},
		{Name: "Terraform", Substrings: []string{"resource \"", "provider \"", "terraform {"}},
		{Name: "Ansible", Substrings: []string{"hosts:", "ansible-playbook", "become:"}},
		{Name: "AWS", Substrings: []string{"aws_", "amazonaws.com", "boto3", "aws-sdk"}},
		{Name: "Google Cloud", Substrings: []string{"google_compute", "gcloud ", "googleapis.com"}},
		{Name: "Azure", Substrings: []string{"azurerm_", "azure.microsoft.com"}},
		{Name: "Nginx", Substrings: []string{"proxy_pass", "nginx.conf"}},
		{Name: "Prometheus", Substrings: []string{"prometheus.yml", "scrape_configs"}},
		{Name: "Grafana", Substrings: []string{"grafana", "dashboard.json"}},
		{Name: "Vault", Substrings: []string{"vault kv", "vault_generic_secret"}},
	}

	return New("infrastructure", domain.CategoryInfrastructure, filePatterns, rules)
}

// NewCICD builds the CI/CD pipeline detector.
func NewCICD() *PatternDetector {
	filePatterns := []string{
		".gitlab-ci.yml", "*.yml", "*.yaml", "Jenkinsfile", "*.groovy",
		".github/workflows/*", "azure-pipelines.yml", ".circleci/*",
		".travis.yml", "bitbucket-pipelines.yml",
	}

	rules := []Rule{
		{Name: "GitLab CI", Substrings: []string{"gitlab-ci", "stages:", "only:", "rules:", "extends: ."}},
		{Name: "GitHub Actions", Substrings: []string{"runs-on:", "uses: actions/", "workflow_dispatch"}},
		{Name: "Jenkins", Substrings: []string{"pipeline {", "jenkinsfile", "agent any"}},
		{Name: "CircleCI", Substrings: []string{"circleci", "orbs:"}},
		{Name: "Travis CI", Substrings: []string{"travis", "language: "}},
		{Name: "Azure Pipelines", Substrings: []string{"azure-pipelines", "pool:", "vmimage:"}},
		{Name: "ArgoCD", Substrings: []string{"argoproj.io", "kind: application"}},
	}

	return New("cicd", domain.CategoryCICD, filePatterns, rules)
}
