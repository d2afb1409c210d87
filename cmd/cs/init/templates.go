package initcmder

// templates maps template names to manifest contents.
var templates = map[string]string{
	"paper": `[package]
name = "my-paper"
version = "0.1.0"
authors = ["Your Name <you@example.org>"]
license = "CC-BY-4.0"

[[pipeline]]
name = "data"
cmd = "python scripts/generate_data.py"
inputs = ["scripts/generate_data.py"]
outputs = ["data/*.csv"]

[[pipeline]]
name = "figures"
cmd = "python scripts/make_figures.py"
inputs = ["data/*.csv", "scripts/make_figures.py"]
outputs = ["figures/*.png"]

[[pipeline]]
name = "paper"
cmd = "pdflatex -interaction=nonstopmode paper.tex"
inputs = ["figures/*.png", "paper.tex"]
outputs = ["paper.pdf"]

[attestation]
include = ["data/**", "figures/**", "paper.pdf"]
exclude = []
`,

	"data": `[package]
name = "my-dataset"
version = "0.1.0"

[[pipeline]]
name = "process"
cmd = "python scripts/process.py"
inputs = ["raw/**", "scripts/process.py"]
outputs = ["processed/*.csv"]

[attestation]
include = ["processed/**"]
`,
}
