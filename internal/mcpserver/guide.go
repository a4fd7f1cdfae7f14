package mcpserver

// UsageGuide is served as the stash://guide resource and by the get_guide tool.
const UsageGuide = `# Stash Usage Guide

Stash keeps small "file" records in a tree of folders. Nothing is uploaded:
a file is a name, a type, a short content string and a list of tags.

## File types

| type     | content                                                   |
|----------|-----------------------------------------------------------|
| text     | free text                                                 |
| link     | a URL                                                     |
| image    | an image URL; left empty, a placeholder picture is used   |
| document | left empty, a placeholder sentence is stored              |
| video    | a URL or a short description                              |

The type cannot be changed after creation.

## Folders

- Folder ids are opaque strings. Omit ` + "`" + `folderId` + "`" + ` / ` + "`" + `parentId` + "`" + ` to work at the root.
- Names do not have to be unique; always address folders by id.
- Deleting a folder deletes every subfolder and every file inside them.
  It is refused while any file below it is locked.

## Locked files

- A file created with ` + "`" + `locked: true` + "`" + ` needs a ` + "`" + `password` + "`" + `.
- ` + "`" + `read_file` + "`" + ` returns the content of a locked file only with the right password.
- Locked files cannot be deleted. Ask the user to unlock them first.
- Never guess passwords and never echo them back in replies.

## Tags

Tags are case-sensitive. Duplicates are ignored. Use lowercase, kebab-case
tags (e.g. ` + "`" + `tax-2024` + "`" + `) unless the user asks otherwise.
`
